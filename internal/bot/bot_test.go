package bot

import "testing"

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	tests := []struct {
		name      string
		input     string
		wantCmd   string
		wantArgs  []string
		isCommand bool
	}{
		{"bang prefix", "!dailylogin", "dailylogin", nil, true},
		{"dot prefix", ".dailystatus", "dailystatus", nil, true},
		{"slash prefix", "/profile", "profile", nil, true},
		{"uppercase normalized", "!DailyLogin", "dailylogin", nil, true},
		{"with args", "!resetdaily 628123456789", "resetdaily", []string{"628123456789"}, true},
		{"surrounding whitespace", "  !daily  ", "daily", nil, true},
		{"no prefix", "dailylogin", "", nil, false},
		{"plain chat", "halo semua", "", nil, false},
		{"bare prefix", "!", "", nil, false},
		{"empty", "", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, ok := p.ParseCommand(tt.input)
			if ok != tt.isCommand {
				t.Fatalf("isCommand = %v, want %v", ok, tt.isCommand)
			}
			if cmd != tt.wantCmd {
				t.Errorf("cmd = %q, want %q", cmd, tt.wantCmd)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tt.wantArgs)
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("args[%d] = %q, want %q", i, args[i], tt.wantArgs[i])
				}
			}
		})
	}
}
