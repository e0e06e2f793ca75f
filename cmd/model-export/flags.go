package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// mustBind binds a flag to a viper key. Binding only fails for a nil flag,
// which is a programming error.
func mustBind(key string, f *pflag.Flag) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(err)
	}
}
