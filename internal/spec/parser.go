// Package spec parses device specifications of the form
// "basename[@hexaddress][.consumer]".
package spec

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/KevinKickass/OpenGroveCore/internal/types"
)

var ErrInvalidSpec = errors.New("invalid device specification")

var segmentRe = regexp.MustCompile(`^([^@]+)(?:@([0-9a-fA-F]+))?$`)

// Parse splits a specification at its first '.' and parses the leading
// segment. The consumer part is kept verbatim; the binder decides whether it
// names a module that can be driven by an ADC.
func Parse(s string) (types.DeviceSpec, error) {
	head, chain, chained := strings.Cut(s, ".")
	if chained && chain == "" {
		return types.DeviceSpec{}, fmt.Errorf("%w %q: empty chain consumer", ErrInvalidSpec, s)
	}

	basename, address, err := parseSegment(head)
	if err != nil {
		return types.DeviceSpec{}, fmt.Errorf("%w %q: %v", ErrInvalidSpec, s, err)
	}

	return types.DeviceSpec{
		Raw:      s,
		Basename: basename,
		Address:  address,
		Chain:    chain,
	}, nil
}

// Modules returns the basename of every '.'-separated segment, address
// decoration removed.
func Modules(s string) ([]string, error) {
	parts := strings.Split(s, ".")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		basename, _, err := parseSegment(part)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidSpec, s, err)
		}
		names = append(names, basename)
	}
	return names, nil
}

func parseSegment(seg string) (string, *uint32, error) {
	if seg == "" {
		return "", nil, errors.New("empty module name")
	}
	m := segmentRe.FindStringSubmatch(seg)
	if m == nil {
		return "", nil, fmt.Errorf("malformed segment %q", seg)
	}
	if m[2] == "" {
		return m[1], nil, nil
	}
	v, err := strconv.ParseUint(m[2], 16, 32)
	if err != nil {
		return "", nil, fmt.Errorf("address %q out of range", m[2])
	}
	addr := uint32(v)
	return m[1], &addr, nil
}
