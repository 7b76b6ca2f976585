// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package probetest provides a scripted Connector for tests.
package probetest

import (
	"context"
	"sync"
	"time"

	"github.com/vulntor/netreach/pkg/target"
)

// Behavior describes how the Connector answers for one target.
type Behavior struct {
	// Delay before answering. Honours ctx unless IgnoreContext is set.
	Delay time.Duration
	// Err is returned after Delay; nil means the connection was accepted.
	Err error
	// Hang blocks until ctx is done (or forever with IgnoreContext).
	Hang bool
	// IgnoreContext simulates a connector that does not observe cancellation.
	IgnoreContext bool
}

// Connector is a probe.Connector whose answers are scripted per target.
// Targets without a script are accepted immediately.
type Connector struct {
	mu        sync.Mutex
	behaviors map[target.Target]Behavior
	calls     map[target.Target]int
	inFlight  int
	maxFlight int
	release   chan struct{}
}

// NewConnector returns an empty scripted Connector.
func NewConnector() *Connector {
	return &Connector{
		behaviors: make(map[target.Target]Behavior),
		calls:     make(map[target.Target]int),
		release:   make(chan struct{}),
	}
}

// On scripts the behaviour for t and returns c for chaining.
func (c *Connector) On(t target.Target, b Behavior) *Connector {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.behaviors[t] = b
	return c
}

// Release unblocks every attempt hanging with IgnoreContext.
func (c *Connector) Release() {
	close(c.release)
}

// Calls returns how many attempts were made against t.
func (c *Connector) Calls(t target.Target) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[t]
}

// MaxInFlight returns the highest number of simultaneous attempts observed.
func (c *Connector) MaxInFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxFlight
}

// AttemptConnection implements probe.Connector.
func (c *Connector) AttemptConnection(ctx context.Context, t target.Target) error {
	c.mu.Lock()
	b := c.behaviors[t]
	c.calls[t]++
	c.inFlight++
	if c.inFlight > c.maxFlight {
		c.maxFlight = c.inFlight
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight--
		c.mu.Unlock()
	}()

	switch {
	case b.Hang && b.IgnoreContext:
		<-c.release
		return nil
	case b.Hang:
		<-ctx.Done()
		return ctx.Err()
	}

	if b.Delay > 0 {
		timer := time.NewTimer(b.Delay)
		defer timer.Stop()
		if b.IgnoreContext {
			<-timer.C
		} else {
			select {
			case <-timer.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return b.Err
}
