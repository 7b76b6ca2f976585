// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package appctx carries process-wide values through context.Context.
package appctx

import (
	"context"

	"github.com/vulntor/netreach/pkg/config"
)

type configKey struct{}

// WithConfig stores the loaded configuration in ctx.
func WithConfig(ctx context.Context, cfg config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// Config returns the configuration stored in ctx, or the built-in defaults.
func Config(ctx context.Context) config.Config {
	if ctx != nil {
		if cfg, ok := ctx.Value(configKey{}).(config.Config); ok {
			return cfg
		}
	}
	return config.DefaultConfig()
}
