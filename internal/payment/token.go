package payment

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Token signs a gateway request: every scalar root field plus Password, sorted by key,
// values concatenated and hashed with SHA-256. Nested objects, arrays and Token itself are skipped.
func Token(fields map[string]any, password string) string {
	vals := map[string]string{"Password": password}
	for k, v := range fields {
		if k == "Token" {
			continue
		}
		if s, ok := scalar(v); ok {
			vals[k] = s
		}
	}
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(vals[k])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// VerifyToken checks the Token field of a gateway callback body.
func VerifyToken(fields map[string]any, password string) bool {
	got, _ := fields["Token"].(string)
	if got == "" || password == "" {
		return false
	}
	want := Token(fields, password)
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(got)), []byte(want)) == 1
}

func scalar(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer, reflect.Interface:
		return "", false
	}
	return fmt.Sprint(v), true
}
