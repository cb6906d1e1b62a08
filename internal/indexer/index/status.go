package index

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
)

// Status is assigned by the caller when a document is added and never changes
// afterwards.
type Status int

const (
	StatusActual Status = iota
	StatusIrrelevant
	StatusBanned
	StatusRemoved
)

var statusNames = [...]string{
	StatusActual:     "actual",
	StatusIrrelevant: "irrelevant",
	StatusBanned:     "banned",
	StatusRemoved:    "removed",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// ParseStatus accepts status names case-insensitively.
func ParseStatus(name string) (Status, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range statusNames {
		if n == candidate {
			return Status(i), nil
		}
	}
	return 0, apperrors.Newf(apperrors.ErrInvalidInput, "parse_status", "unknown document status %q", name)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Policy selects the sequential or data-parallel variant of an operation.
type Policy int

const (
	Sequential Policy = iota
	Parallel
)

func (p Policy) String() string {
	switch p {
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy accepts "sequential"/"seq" and "parallel"/"par".
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sequential", "seq", "":
		return Sequential, nil
	case "parallel", "par":
		return Parallel, nil
	default:
		return 0, apperrors.Newf(apperrors.ErrInvalidInput, "parse_policy", "unknown execution policy %q", name)
	}
}

func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
