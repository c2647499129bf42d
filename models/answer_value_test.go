package models

import "testing"

func TestAnswerValue_Scan(t *testing.T) {
	tests := []struct {
		name string
		src  interface{}
		want string
		null bool
	}{
		{"integer affinity", int64(7), "7", false},
		{"real affinity", float64(7.5), "7.5", false},
		{"negative integer", int64(-3), "-3", false},
		{"text", `"hola"`, `"hola"`, false},
		{"bytes", []byte(`["a","b"]`), `["a","b"]`, false},
		{"null", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := AnswerValue("stale")
			if err := v.Scan(tt.src); err != nil {
				t.Fatalf("Scan(%v) error = %v", tt.src, err)
			}
			if tt.null {
				if v != nil {
					t.Errorf("Scan(nil) = %s, want nil", v)
				}
				return
			}
			if string(v) != tt.want {
				t.Errorf("Scan(%v) = %s, want %s", tt.src, v, tt.want)
			}
		})
	}
}

func TestAnswerValue_ScanRejectsUnknownType(t *testing.T) {
	var v AnswerValue
	if err := v.Scan(true); err == nil {
		t.Error("Scan(bool) error = nil, want error")
	}
}
