package core

import "testing"

func TestOrdinalSuffix(t *testing.T) {
	want := map[int]string{
		1: "st", 2: "nd", 3: "rd", 4: "th", 10: "th",
		11: "th", 12: "th", 13: "th", 14: "th",
		21: "st", 22: "nd", 23: "rd", 24: "th", 30: "th", 31: "st",
	}
	for day, suffix := range want {
		if got := OrdinalSuffix(day); got != suffix {
			t.Errorf("OrdinalSuffix(%d) = %q, want %q", day, got, suffix)
		}
	}
	// Rule must hold for the whole 1-31 domain
	for day := 1; day <= 31; day++ {
		got := OrdinalSuffix(day)
		var expect string
		switch {
		case day >= 11 && day <= 13:
			expect = "th"
		case day%10 == 1:
			expect = "st"
		case day%10 == 2:
			expect = "nd"
		case day%10 == 3:
			expect = "rd"
		default:
			expect = "th"
		}
		if got != expect {
			t.Fatalf("OrdinalSuffix(%d) = %q, want %q", day, got, expect)
		}
	}
}

func TestDescribePeriod(t *testing.T) {
	cases := []struct {
		name string
		in   Settings
		want string
	}{
		{
			name: "calendar has no preview",
			in:   Settings{CycleType: Calendar, PayDay: IntPtr(15), CycleStartOffset: 2},
			want: "",
		},
		{
			name: "last weekday",
			in:   Settings{CycleType: LastWeekday, CycleStartOffset: 1},
			want: "Your financial period will start on the last weekday of each month.",
		},
		{
			name: "custom day no offset",
			in:   Settings{CycleType: CustomDay, PayDay: IntPtr(25), CycleStartOffset: 0},
			want: "Your financial period will start on the 25th of each month.",
		},
		{
			name: "custom day with offset",
			in:   Settings{CycleType: CustomDay, PayDay: IntPtr(1), CycleStartOffset: 2},
			want: "Your financial period will start on the 1st + 2 day(s) of each month.",
		},
		{
			name: "custom day ordinal edge",
			in:   Settings{CycleType: CustomDay, PayDay: IntPtr(22), CycleStartOffset: 0},
			want: "Your financial period will start on the 22nd of each month.",
		},
		{
			name: "bi-weekly with offset",
			in:   Settings{CycleType: BiWeekly, PayDay: IntPtr(5), CycleStartOffset: 1},
			want: "Your financial period will start on Friday + 1 day(s) every 2 weeks.",
		},
		{
			name: "bi-weekly no offset",
			in:   Settings{CycleType: BiWeekly, PayDay: IntPtr(0), CycleStartOffset: 0},
			want: "Your financial period will start on Sunday every 2 weeks.",
		},
		{
			name: "invalid input yields no preview",
			in:   Settings{CycleType: "weekly", CycleStartOffset: 0},
			want: "",
		},
		{
			name: "missing pay day yields no preview",
			in:   Settings{CycleType: CustomDay, CycleStartOffset: 0},
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DescribePeriod(tc.in); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

// Validated settings must always be describable: every valid candidate
// round-trips through Validate into DescribePeriod without surprises.
func TestValidatedSettingsAreDescribable(t *testing.T) {
	for _, d := range ListTypes() {
		var candidates []Settings
		if d.RequiresPayDay {
			for day := d.PayDayRange.Min; day <= d.PayDayRange.Max; day++ {
				for _, off := range []int{0, 1, 2} {
					candidates = append(candidates, Settings{
						CycleType: d.Value, PayDay: IntPtr(day), CycleStartOffset: off,
					})
				}
			}
		} else {
			candidates = append(candidates,
				Settings{CycleType: d.Value, CycleStartOffset: 0},
				Settings{CycleType: d.Value, PayDay: IntPtr(9), CycleStartOffset: 2},
			)
		}
		for _, c := range candidates {
			norm, err := c.Validate()
			if err != nil {
				t.Fatalf("%s: expected valid candidate %+v, got %v", d.Value, c, err)
			}
			text := DescribePeriod(norm)
			if d.Value == Calendar && text != "" {
				t.Fatalf("calendar preview should be empty, got %q", text)
			}
			if d.Value != Calendar && text == "" {
				t.Fatalf("%s: expected preview for %+v", d.Value, norm)
			}
		}
	}
}

func TestSummary(t *testing.T) {
	cases := []struct {
		in   Settings
		want string
	}{
		{Settings{CycleType: Calendar}, "Calendar months"},
		{Settings{CycleType: LastWeekday}, "Last weekday of each month"},
		{Settings{CycleType: CustomDay, PayDay: IntPtr(25)}, "Custom day: 25th of each month"},
		{Settings{CycleType: CustomDay, PayDay: IntPtr(3), CycleStartOffset: 2}, "Custom day: 3rd + 2 day(s) of each month"},
		{Settings{CycleType: BiWeekly, PayDay: IntPtr(5), CycleStartOffset: 1}, "Bi-weekly: Every 2 weeks starting Friday + 1 day(s)"},
		{Settings{CycleType: "weekly"}, "Unknown"},
	}
	for i, tc := range cases {
		if got := Summary(tc.in); got != tc.want {
			t.Fatalf("case %d: got %q, want %q", i, got, tc.want)
		}
	}
}
