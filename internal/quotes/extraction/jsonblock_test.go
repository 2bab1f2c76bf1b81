package extraction

import "testing"

func TestFirstJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, true},
		{"prose around", "Sure! Here you go:\n{\"a\":{\"b\":2}}\nLet me know.", `{"a":{"b":2}}`, true},
		{"code fence", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"braces in strings", `{"note":"use } and { freely","x":"\"}"}`, `{"note":"use } and { freely","x":"\"}"}`, true},
		{"first of two", `{"a":1} {"b":2}`, `{"a":1}`, true},
		{"none", "I could not find any details.", "", false},
		{"unbalanced", `{"a":{"b":1}`, "", false},
	}
	for _, tc := range cases {
		got, ok := firstJSONObject(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%s: firstJSONObject = %q, %v; want %q, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}
