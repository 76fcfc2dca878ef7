/*
Package vkg is the engine's Vulkan layer. It owns the instance, the
physical/logical device, queues, the swapchain and its frame-in-flight
synchronization, and the building blocks every render system is made of:
buffers, images, descriptor sets, pipeline layouts and graphics
pipelines.

The renderer above this package never touches a raw Vulkan handle to
create anything, but the native objects are deliberately exposed on
every wrapper as fields prefixed with VK (VKDevice, VKBuffer, ...) so
that code which needs an option this package does not surface can call
the vulkan APIs directly.

Construction order is strict and violations are programming errors, not
recoverable conditions: an Instance before a Device, descriptor set
layouts before pipeline layouts, pipeline layouts before pipelines,
pipelines before any draw.

Uploads (vertex data, textures) go through single-time command buffers
on a dedicated load pool; the submitting queue is waited idle before
the buffer is freed. That keeps every upload call-site trivially safe
at the cost of pipeline bubbles, which is acceptable for the asset
volumes this engine targets.
*/
package vkg
