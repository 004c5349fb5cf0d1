// Package velocity ranks terms by growth between a recent window and the same
// window one week earlier
package velocity

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind tags a Velocity as a finite ratio or unbounded growth
type Kind uint8

const (
	// KindFinite is an ordinary (recent-baseline)/baseline ratio
	KindFinite Kind = iota
	// KindUnbounded is growth from a zero baseline
	KindUnbounded
)

// unboundedText is the wire and display form of unbounded growth
const unboundedText = "unbounded"

// Velocity is a relative change that may be unbounded
type Velocity struct {
	kind  Kind
	value float64
}

// Finite returns a finite velocity
func Finite(v float64) Velocity { return Velocity{kind: KindFinite, value: v} }

// Unbounded returns the unbounded growth velocity
func Unbounded() Velocity { return Velocity{kind: KindUnbounded} }

// Between computes the velocity from baseline to recent
// zero to positive is unbounded, zero to zero is finite zero
func Between(recent, baseline int64) Velocity {
	if baseline == 0 {
		if recent > 0 {
			return Unbounded()
		}
		return Finite(0)
	}
	return Finite(float64(recent-baseline) / float64(baseline))
}

// Kind returns the variant tag
func (v Velocity) Kind() Kind { return v.kind }

// IsUnbounded reports whether v is the unbounded variant
func (v Velocity) IsUnbounded() bool { return v.kind == KindUnbounded }

// Value returns the finite value, ok is false when unbounded
func (v Velocity) Value() (float64, bool) {
	if v.kind == KindUnbounded {
		return 0, false
	}
	return v.value, true
}

// Float returns the value with unbounded mapped to +Inf for numeric consumers
func (v Velocity) Float() float64 {
	if v.kind == KindUnbounded {
		return math.Inf(1)
	}
	return v.value
}

// AtLeast reports whether v meets threshold, unbounded always does
func (v Velocity) AtLeast(threshold float64) bool {
	if v.kind == KindUnbounded {
		return true
	}
	return v.value >= threshold
}

// Compare orders velocities with unbounded above every finite value
func (v Velocity) Compare(o Velocity) int {
	switch {
	case v.kind == KindUnbounded && o.kind == KindUnbounded:
		return 0
	case v.kind == KindUnbounded:
		return 1
	case o.kind == KindUnbounded:
		return -1
	case v.value < o.value:
		return -1
	case v.value > o.value:
		return 1
	default:
		return 0
	}
}

// String renders the velocity for logs and tables
func (v Velocity) String() string {
	if v.kind == KindUnbounded {
		return unboundedText
	}
	return strconv.FormatFloat(v.value, 'f', -1, 64)
}

// MarshalJSON writes finite values as numbers and unbounded as "unbounded"
func (v Velocity) MarshalJSON() ([]byte, error) {
	if v.kind == KindUnbounded {
		return json.Marshal(unboundedText)
	}
	return json.Marshal(v.value)
}

// UnmarshalJSON accepts a number or the "unbounded" string
func (v *Velocity) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s != unboundedText {
			return fmt.Errorf("velocity: unknown variant %q", s)
		}
		*v = Unbounded()
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("velocity: %w", err)
	}
	*v = Finite(f)
	return nil
}
