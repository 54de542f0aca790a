package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// DecodeError is returned when no known version could read the input.
type DecodeError struct {
	// Attempts holds one error per version tried, newest first.
	Attempts []error
}

func (e *DecodeError) Error() string {
	msgs := make([]string, len(e.Attempts))
	for i, err := range e.Attempts {
		msgs[i] = err.Error()
	}
	return "snapshot: unsupported bundle: " + strings.Join(msgs, "; ")
}

func (e *DecodeError) Unwrap() []error {
	return e.Attempts
}

// Encode writes state as a v3 bundle: indented, object keys sorted at every
// level, RFC 3339 dates and decimal strings for amounts.
func Encode(state domain.State) ([]byte, error) {
	s := withDefaults(state.Clone())
	b := bundleV3{
		Accounts:       s.Accounts,
		Categories:     s.Categories,
		CategoryMemory: s.CategoryMemory,
		Debts:          s.Debts,
		Investments:    s.Investments,
		SavingsPots:    s.Pots,
		Settings:       &s.Settings,
		Transactions:   s.Transactions,
		Version:        CurrentVersion,
	}

	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("Encode: marshal bundle: %w", err)
	}

	// Entity structs keep their field order; a generic round trip sorts them.
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("Encode: normalize bundle: %w", err)
	}
	out, err := json.MarshalIndent(generic, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("Encode: marshal sorted bundle: %w", err)
	}
	return append(out, '\n'), nil
}

// Decode reads a bundle of any known version, trying the newest first.
// It returns the state and the version that accepted the input. A bundle
// without a version is read as the oldest version whose keys it carries.
func Decode(data []byte) (domain.State, int, error) {
	var attempts []error
	implied := impliedVersion(data)
	version := func(v int) int {
		if v == 0 {
			return implied
		}
		return v
	}

	var v3 bundleV3
	err := decodeVersion(data, &v3, func() int { return version(v3.Version) }, 3)
	if err == nil {
		return v3.state(), 3, nil
	}
	attempts = append(attempts, fmt.Errorf("v3: %w", err))

	var v2 bundleV2
	err = decodeVersion(data, &v2, func() int { return version(v2.Version) }, 2)
	if err == nil {
		return v2.state(), 2, nil
	}
	attempts = append(attempts, fmt.Errorf("v2: %w", err))

	var v1 bundleV1
	err = decodeVersion(data, &v1, func() int { return version(v1.Version) }, 1)
	if err == nil {
		return v1.state(), 1, nil
	}
	attempts = append(attempts, fmt.Errorf("v1: %w", err))

	return domain.State{}, 0, &DecodeError{Attempts: attempts}
}

var errVersionMismatch = errors.New("version mismatch")

func decodeVersion(data []byte, into any, version func() int, accepted ...int) error {
	if err := json.Unmarshal(data, into); err != nil {
		return err
	}
	got := version()
	for _, v := range accepted {
		if got == v {
			return nil
		}
	}
	return fmt.Errorf("%w: found %d", errVersionMismatch, got)
}

// impliedVersion guesses the version of an unversioned bundle from the
// top-level keys that only later versions write.
func impliedVersion(data []byte) int {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return 1
	}
	has := func(names ...string) bool {
		for _, n := range names {
			if _, ok := keys[n]; ok {
				return true
			}
		}
		return false
	}
	switch {
	case has("debts", "settings"):
		return 3
	case has("savingsPots", "categories", "categoryMemory"):
		return 2
	}
	return 1
}
