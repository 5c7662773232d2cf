//go:build ignore

// fake_transcoder mimics ffmpeg's stderr chatter. It prints the stream
// mapping banner, then progress lines until killed. With
// FAKE_TRANSCODER_EXIT set it exits with that code right after the banner.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func main() {
	fmt.Fprintln(os.Stderr, "Input #0, flv, from 'rtmp://127.0.0.1/live/src':")
	fmt.Fprintln(os.Stderr, "Stream mapping:")
	fmt.Fprintln(os.Stderr, "  Stream #0:0 -> #0:0 (h264 (native) -> h264 (libx264))")
	if v := os.Getenv("FAKE_TRANSCODER_EXIT"); v != "" {
		code, _ := strconv.Atoi(v)
		os.Exit(code)
	}
	for i := 1; ; i++ {
		fmt.Fprintf(os.Stderr, "frame=%5d fps= 30 q=28.0 size=%6dkB time=00:00:01.00 bitrate= 98.3kbits/s\r", i, i*4)
		time.Sleep(50 * time.Millisecond)
	}
}
