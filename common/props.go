// Copyright 2022 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package common

// Feature describes capabilities of a registered security package.
type Feature uint32

const (
	FeatChannelBindings Feature = 1 << iota // package can honour TLS channel bindings
	FeatAnonymous                           // package can negotiate without an identity
	FeatMutualAuth                          // package can authenticate the gateway to us
)

// PackageProps are the static properties a security package declares
// when it registers.
type PackageProps struct {
	Features Feature
}

// FeatureList returns the individual features present in the composite
// value f.
func FeatureList(f Feature) (fl []Feature) {
	t := Feature(1)
	for i := 0; i < 32; i++ {
		if f&t != 0 {
			fl = append(fl, t)
		}

		t <<= 1
	}

	return
}

// FeatureName returns a human-readable description of a feature value.
func FeatureName(f Feature) string {
	switch f {
	case FeatChannelBindings:
		return "Package supports TLS channel bindings"
	case FeatAnonymous:
		return "Package supports anonymous negotiation"
	case FeatMutualAuth:
		return "Package supports mutual authentication"
	}

	return "Unknown"
}
