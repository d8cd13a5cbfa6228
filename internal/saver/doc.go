// Package saver accepts save requests and runs them through the staged
// store writer on a serial queue, delivering exactly one result per request.
//
// SaveMediaToGallery returns immediately. The request is copied onto the
// queue, processed when its turn comes, and its result is handed to the
// dispatcher, which sends it on the caller's execution context. Failures and
// panics inside processing become failed results; nothing escapes to the
// caller or stops the queue.
package saver
