package extractor

import "testing"

func TestIsReadableText(t *testing.T) {
	tests := []struct {
		name     string
		pages    []string
		expected bool
	}{
		{
			name: "readable statement text",
			pages: []string{
				"CIBC Account Statement\nYour new charges and credits\nJan 05 Jan 07 STARBUCKS 4.50\nTotal balance 1,234.56",
			},
			expected: true,
		},
		{
			name:     "too short",
			pages:    []string{"CIBC"},
			expected: false,
		},
		{
			name:     "no recognizable statement words",
			pages:    []string{"lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod"},
			expected: false,
		},
		{
			name:     "binary garbage",
			pages:    []string{"\x80\x81\x82\x83\x84\x85\x86\x87\x88\x89þÿøö CIBC statement \x90\x91\x92\x93\x94\x95\x96\x97\x98\x99\x9a\x9b\x9c\x9d\x9e\x9f\xa0\xa1\xa2\xa3\xa4\xa5\xa6\xa7\xa8\xa9"},
			expected: false,
		},
		{
			name:     "empty",
			pages:    nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isReadableText(tt.pages); got != tt.expected {
				t.Errorf("isReadableText: got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTextQuality(t *testing.T) {
	if q := textQuality([]string{"plain ascii text 123"}); q != 1.0 {
		t.Errorf("clean text quality: got %f, want 1.0", q)
	}
	if q := textQuality(nil); q != 0 {
		t.Errorf("empty quality: got %f, want 0", q)
	}
	clean := textQuality([]string{"statement balance total"})
	dirty := textQuality([]string{"\x80\x81\x82 statement \x83\x84\x85"})
	if dirty >= clean {
		t.Errorf("garbage should lower quality: clean=%f dirty=%f", clean, dirty)
	}
}
