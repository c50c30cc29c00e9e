package domain

import "testing"

func TestInferSubject(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{name: "colon and double space", text: "Ref 12 Subject: Budget Report  next line", want: "Budget Report", found: true},
		{name: "subj with dash", text: "subj - Annual Leave.", want: "Annual Leave", found: true},
		{name: "line break terminates", text: "SUBJECT Hostel allotment\nDear Sir", want: "Hostel allotment", found: true},
		{name: "question mark terminates", text: "subject: Can we meet? Thanks", want: "Can we meet", found: true},
		{name: "end of text terminates", text: "Subject - Exam schedule", want: "Exam schedule", found: true},
		{name: "second colon terminates", text: "Subject: Re: Leave", want: "Re", found: true},
		{name: "nbsp run terminates", text: "Subject:\u00a0Budget\u00a0\u00a0Report", want: "Budget", found: true},
		{name: "em space run terminates", text: "Subject: Budget Report\u2003\u2003Dear Sir", want: "Budget Report", found: true},
		{name: "line separator and bom", text: "subj\ufeff: Transfer request\u2028\u2028signed", want: "Transfer request", found: true},
		{name: "vertical tab pair", text: "Subject: Fees\v\vdue", want: "Fees", found: true},
		{name: "no marker", text: "Dear Sir, please find attached.", found: false},
		{name: "empty capture", text: "Subject:   ", found: false},
		{name: "empty text", text: "", found: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := InferSubject(tc.text)
			if ok != tc.found {
				t.Fatalf("InferSubject(%q) found = %v, want %v", tc.text, ok, tc.found)
			}
			if got != tc.want {
				t.Fatalf("InferSubject(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}
