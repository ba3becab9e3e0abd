// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/maruel/serve-dir/loghttp"
)

// newHandler returns the handler serving the site rooted at root.
func newHandler(root string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(root)))
	return &loghttp.Handler{Handler: noCache(mux)}
}

// noCache makes the browser refetch the media after a rebuild.
func noCache(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		h.ServeHTTP(w, r)
	})
}

// serveSite serves root on addr until ctx is canceled, the site is rebuilt by
// another run or the executable is replaced.
func serveSite(ctx context.Context, addr, root string) error {
	sw, err := newSiteWatcher(root)
	if err != nil {
		return err
	}
	defer sw.Close()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s := &http.Server{Handler: newHandler(root), ReadHeaderTimeout: 10 * time.Second}
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ln)
	}()
	fmt.Printf("Serving %s on http://%s\n", root, ln.Addr())
	reason, err := sw.wait(ctx)
	fmt.Printf("Stopped serving: %s\n", reason)
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err2 := s.Shutdown(sctx); err == nil {
		err = err2
	}
	if err2 := <-done; err2 != http.ErrServerClosed {
		log.Printf("serve: %v", err2)
	}
	return err
}
