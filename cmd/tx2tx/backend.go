package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tx2tx/tx2tx/capture"
	"github.com/tx2tx/tx2tx/display"
	"github.com/tx2tx/tx2tx/display/wayland"
	"github.com/tx2tx/tx2tx/display/x11"
	"github.com/tx2tx/tx2tx/inject"
)

// session bundles the concrete display.Backend together with the
// capture/inject collaborators a server or client needs, once
// connected. Only the fields a given mode actually uses are non-nil.
type session struct {
	backend  display.Backend
	capturer capture.Capturer
	injector inject.Injector
}

func connectSession(displayOverride string, log zerolog.Logger, wantCapture, wantInject bool) (*session, error) {
	kind := display.SessionKind(displayOverride)
	if kind != display.SessionX11 && kind != display.SessionWayland {
		detected, err := display.DetectSession(log)
		if err != nil {
			return nil, err
		}
		kind = detected
	}

	switch kind {
	case display.SessionX11:
		backend := x11.NewBackend()
		if err := backend.Connect(); err != nil {
			return nil, err
		}
		s := &session{backend: backend}
		if wantCapture {
			s.capturer = x11.NewCapturer(backend.Conn())
		}
		if wantInject {
			s.injector = x11.NewInjector(backend.Conn(), backend.Root())
		}
		return s, nil
	case display.SessionWayland:
		backend := wayland.NewBackend(log)
		if err := backend.Connect(); err != nil {
			return nil, err
		}
		s := &session{backend: backend}
		if wantCapture {
			cap, err := wayland.NewCapturer(backend.Seat())
			if err != nil {
				return nil, err
			}
			s.capturer = cap
		}
		if wantInject {
			inj, err := wayland.NewInjector(backend)
			if err != nil {
				return nil, err
			}
			s.injector = inj
		}
		return s, nil
	default:
		return nil, fmt.Errorf("tx2tx: unsupported display session %q", kind)
	}
}
