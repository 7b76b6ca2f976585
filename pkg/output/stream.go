// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package output

import "sync"

// OutputSubscriber renders the events it chooses to handle.
// Handle must not block; it cannot report errors back to the emitter.
type OutputSubscriber interface {
	Name() string
	ShouldHandle(event OutputEvent) bool
	Handle(event OutputEvent)
}

// OutputEventStream fans events out to subscribers synchronously, in
// subscription order. Emit is safe for concurrent use; events from
// concurrent emitters are delivered one at a time.
type OutputEventStream struct {
	mu          sync.Mutex
	subscribers []OutputSubscriber
}

// NewOutputEventStream creates an empty stream.
func NewOutputEventStream() *OutputEventStream {
	return &OutputEventStream{}
}

// Subscribe registers a subscriber.
func (s *OutputEventStream) Subscribe(sub OutputSubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, sub)
}

// Emit delivers event to every subscriber that wants it.
func (s *OutputEventStream) Emit(event OutputEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subscribers {
		if sub.ShouldHandle(event) {
			sub.Handle(event)
		}
	}
}
