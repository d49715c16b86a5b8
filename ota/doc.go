// Package ota implements the OTA upgrade cluster (0x0019) server side: one
// upgrade session per device, driven by the client-originated image_notify
// response sequence (query_next_image, image_block, upgrade_end), an image
// index keyed by manufacturer/image-type/model, and a stall watchdog that
// aborts a session that stops making progress.
//
// Fetching image binaries from a vendor endpoint is out of scope; Index
// only serves images a caller has already loaded into memory.
package ota
