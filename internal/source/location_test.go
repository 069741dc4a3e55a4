package source

import "testing"

func TestLocationString(t *testing.T) {
	tests := []struct {
		name string
		loc  *Location
		want string
	}{
		{"nil", nil, "location(synthetic)"},
		{"zero", &Location{}, "location(synthetic)"},
		{"anonymous", &Location{Start: Position{Line: 3, Column: 1}, End: Position{Line: 3, Column: 9}}, "location(3:1 - 3:9)"},
		{"file", &Location{Filename: "main.bal", Start: Position{Line: 12, Column: 5}}, "main.bal:12:5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.String(); got != tt.want {
				t.Errorf("Location.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewLocation(t *testing.T) {
	loc := NewLocation("a.bal", Position{Line: 1, Column: 2}, Position{Line: 1, Column: 8})
	if loc.IsSynthetic() {
		t.Errorf("expected a real location")
	}
	if loc.End.Column != 8 {
		t.Errorf("End.Column = %d, want 8", loc.End.Column)
	}
}
