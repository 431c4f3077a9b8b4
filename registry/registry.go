// Copyright 2022 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package registry tracks the security packages available to gateway
// channels.  Engine implementations register themselves from an init
// function under their SSPI-style package name.
package registry

import (
	"regexp"

	"github.com/golang-auth/go-rpch/common"
)

// Package names follow the SSPI convention: short, no whitespace.
var packageNameRegexp = regexp.MustCompile(`^[A-Za-z0-9-_]{1,20}$`)

// Factory creates a fresh, un-configured security context.
type Factory func() common.SecurityContext

type securityPackage struct {
	factory    Factory
	properties common.PackageProps
}

var packages map[string]securityPackage

func init() {
	packages = make(map[string]securityPackage)
}

// Register should be called by engine implementations to make a
// security package available to channel drivers
func Register(name string, f Factory, props common.PackageProps) {
	if !packageNameRegexp.MatchString(name) {
		panic("Bad security package name: " + name)
	}

	_, ok := packages[name]

	// can't register two packages with the same name
	if ok {
		panic("Cannot have two security packages named " + name)
	}

	packages[name] = securityPackage{
		factory:    f,
		properties: props,
	}
}

// IsRegistered can be used to find out whether a named security
// package is registered or not
func IsRegistered(name string) bool {
	_, ok := packages[name]

	return ok
}

// New returns a fresh security context for the named package, or nil
// when the package is not registered
func New(name string) common.SecurityContext {
	p, ok := packages[name]

	if ok {
		return p.factory()
	}

	return nil
}

// Properties returns the static properties of the named package
func Properties(name string) common.PackageProps {
	p, ok := packages[name]

	if ok {
		return p.properties
	}

	return common.PackageProps{}
}

// Packages returns the list of registered package names
func Packages() (l []string) {
	l = make([]string, 0, len(packages))

	for name := range packages {
		l = append(l, name)
	}

	return
}
