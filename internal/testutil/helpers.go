package testutil

import (
	"embed"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

//go:embed fixtures
var fixturesFS embed.FS

// LoadFixture loads a raw fixture file from the fixtures directory.
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile(filepath.Join("fixtures", name))
}

// MustLoadFixture loads a fixture and panics on error.
func MustLoadFixture(name string) []byte {
	data, err := LoadFixture(name)
	if err != nil {
		panic("failed to load fixture " + name + ": " + err.Error())
	}
	return data
}

// AssertEqual asserts that two values are equal.
func AssertEqual(t testing.TB, expected, actual any) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Errorf("expected %v, got %v", expected, actual)
	}
}

// AssertNotEqual asserts that two values are not equal.
func AssertNotEqual(t testing.TB, expected, actual any) {
	t.Helper()
	if reflect.DeepEqual(expected, actual) {
		t.Errorf("expected values to differ, both are %v", expected)
	}
}

// AssertNil asserts that a value is nil.
func AssertNil(t testing.TB, actual any) {
	t.Helper()
	if actual != nil && !reflect.ValueOf(actual).IsNil() {
		t.Errorf("expected nil, got %v", actual)
	}
}

// AssertNotNil asserts that a value is not nil.
func AssertNotNil(t testing.TB, actual any) {
	t.Helper()
	if actual == nil || reflect.ValueOf(actual).IsNil() {
		t.Error("expected non-nil value")
	}
}

// AssertNoError asserts that an error is nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// AssertError asserts that an error is not nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Error("expected error, got nil")
	}
}

// AssertErrorIs asserts that err wraps target.
func AssertErrorIs(t testing.TB, err, target error) {
	t.Helper()
	if err == nil {
		t.Errorf("expected error wrapping %v, got nil", target)
		return
	}
	if !errors.Is(err, target) {
		t.Errorf("expected error wrapping %v, got %v", target, err)
	}
}

// AssertTrue asserts that a value is true.
func AssertTrue(t testing.TB, actual bool) {
	t.Helper()
	if !actual {
		t.Error("expected true, got false")
	}
}

// AssertFalse asserts that a value is false.
func AssertFalse(t testing.TB, actual bool) {
	t.Helper()
	if actual {
		t.Error("expected false, got true")
	}
}

// AssertLen asserts the length of a slice, map, or string.
func AssertLen(t testing.TB, obj any, length int) {
	t.Helper()
	v := reflect.ValueOf(obj)
	if v.Len() != length {
		t.Errorf("expected length %d, got %d", length, v.Len())
	}
}

// MustJSON marshals a value to JSON and panics on error.
func MustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic("failed to marshal JSON: " + err.Error())
	}
	return data
}
