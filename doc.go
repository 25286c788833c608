/*
Package vkframe drives a double-buffered Vulkan frame loop from Go.

It owns the orchestration around the GPU API rather than the encoding of draw commands:
device bring-up, swapchain management with recreation on resize, render pass and framebuffer
rebuilding, pipeline compilation, and a multi-threaded recording and submission pipeline.

Threads

Three kinds of goroutine cooperate.

	main		the frame loop; blocks on a lane's fence, on image acquisition and on AwaitIdle
	recorder	one per CommandPool; runs recording functions in FIFO order
	submitter	one per Context; issues every queue submit and present in FIFO order

A submission task first waits for its command buffer to finish recording, so the main
goroutine can enqueue recording, submission and presentation for a frame and move on. The
only place it waits for the GPU is the fence of the lane it is about to reuse.

Fences

A Fence carries a submission flag next to the native fence. Await first waits for the flag,
which the submitter sets after issuing the submit that will signal the fence, and only then
waits on the native fence. Waiting on a native fence before its submit exists would never
return.

Recreation

A Swapchain rebuilds itself when acquisition reports the surface out of date or when asked
to. Renderpasses and framebuffers register with OnRecreate and rebuild from the description
they were created with. Every rebuild bumps the swapchain generation; frames acquired under an
older generation are discarded instead of submitted.

Ownership

Objects are created from a Context and must be destroyed in reverse order: frame loop,
command pool, pipeline, framebuffer, renderpass, swapchain, context.

The GPU API is reached through the driver package. driver/vulkan implements it over
vulkan-go; driver/drivertest is an in-memory implementation for tests.
*/
package vkframe
