// FILE: lixenwraith/spice/decode.go
package spice

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Unmarshal decodes the merged configuration into target, a non-nil pointer to a
// struct or map. Fields are matched by the configured tag name (default "toml").
func (s *Spice) Unmarshal(target any) error {
	settings, err := s.AllSettings()
	if err != nil {
		return err
	}
	return s.decode("", nativeMap(settings), target)
}

// UnmarshalKey decodes the value at key into target. An absent key decodes an empty map.
func (s *Spice) UnmarshalKey(key string, target any) error {
	v, ok, err := s.Get(key)
	if err != nil {
		return err
	}
	var input any = map[string]any{}
	if ok {
		input = v.Interface()
	}
	return s.decode(normalizeKey(key), input, target)
}

// decode is the single path from resolved data to Go values.
func (s *Spice) decode(key string, input any, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("unmarshal target must be non-nil pointer, got %T", target)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          s.tagName,
		WeaklyTypedInput: true,
		DecodeHook:       decodeHook(),
		ZeroFields:       true,
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}

	if err := decoder.Decode(input); err != nil {
		if key == "" {
			return fmt.Errorf("decode failed: %w", err)
		}
		return fmt.Errorf("decode failed for key %q: %w", key, err)
	}
	return nil
}

// decodeHook returns the composite decode hook for all type conversions.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		stringParseHook("IP address", 45, parseIP),
		stringParseHook("CIDR", 49, parseCIDR),
		stringParseHook("URL", 2048, url.Parse),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// stringParseHook decodes a string into T or *T with parse. Inputs longer than
// maxLen are rejected before parsing.
func stringParseHook[T any](what string, maxLen int, parse func(string) (*T, error)) mapstructure.DecodeHookFunc {
	target := reflect.TypeOf((*T)(nil)).Elem()
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		isPtr := t.Kind() == reflect.Ptr
		if t != target && !(isPtr && t.Elem() == target) {
			return data, nil
		}

		str := data.(string)
		if len(str) > maxLen {
			return nil, fmt.Errorf("invalid %s: length %d exceeds %d", what, len(str), maxLen)
		}
		parsed, err := parse(str)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", what, str, err)
		}
		if isPtr {
			return parsed, nil
		}
		return *parsed, nil
	}
}

func parseIP(s string) (*net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, errors.New("not a textual IPv4 or IPv6 address")
	}
	return &ip, nil
}

func parseCIDR(s string) (*net.IPNet, error) {
	_, ipnet, err := net.ParseCIDR(s)
	return ipnet, err
}
