package submission

import "testing"

func TestExtractImageURL_Priority(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
		ok   bool
	}{
		{
			name: "markdown first",
			body: `<img src="https://h.test/x.png"> ![alt](https://m.test/a.jpg "t")`,
			want: "https://m.test/a.jpg",
			ok:   true,
		},
		{
			name: "html img",
			body: `texto <img width="300" SRC='https://h.test/x.png' alt="x"> https://github.com/user-attachments/assets/abc-123`,
			want: "https://h.test/x.png",
			ok:   true,
		},
		{
			name: "bare attachment",
			body: "mira https://github.com/user-attachments/assets/0a1b-ff22 aqui",
			want: "https://github.com/user-attachments/assets/0a1b-ff22",
			ok:   true,
		},
		{
			name: "empty src falls through",
			body: `<img src=""> https://github.com/user-attachments/assets/ab`,
			want: "https://github.com/user-attachments/assets/ab",
			ok:   true,
		},
		{name: "none", body: "sin imagen https://a.test/x.jpg", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractImageURL(tt.body)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("期望 (%q,%v)，实际 (%q,%v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}
