package main

import (
	"github.com/mitchellh/mapstructure"
)

// kernelOptions is the typed shape the kernel-opts setting decodes into.
// The setting is a free-form map read by viper from the config file (or
// its built-in default); no command-line flag sets it. mapstructure
// turns that map into a validated struct.
type kernelOptions struct {
	Kind      string `mapstructure:"kind"`
	GroupSize int    `mapstructure:"groupsize"`
}

func decodeKernelOptions(raw map[string]interface{}) (kernelOptions, error) {
	opts := kernelOptions{Kind: "cuda", GroupSize: 128}
	if raw == nil {
		return opts, nil
	}
	if err := mapstructure.Decode(raw, &opts); err != nil {
		return opts, err
	}
	return opts, nil
}
