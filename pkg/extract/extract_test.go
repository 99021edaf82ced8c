package extract

import "testing"

func TestPythonBlock(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{
			name:  "single block",
			reply: "Here you go:\n```python\nprint(1+1)\n```\nDone.",
			want:  "print(1+1)",
		},
		{
			name:  "interior preserved verbatim",
			reply: "```python\nimport pandas as pd\n\ndf = pd.read_csv('./data.csv')\nprint(df.head())\n```",
			want:  "import pandas as pd\n\ndf = pd.read_csv('./data.csv')\nprint(df.head())",
		},
		{
			name:  "leading whitespace inside block kept",
			reply: "```python\n    if x:\n        y()\n```",
			want:  "    if x:\n        y()",
		},
		{
			name:  "no block",
			reply: "The average cost is 42. No code needed.",
			want:  "",
		},
		{
			name:  "different language tag ignored",
			reply: "```sql\nSELECT 1;\n```",
			want:  "",
		},
		{
			name:  "untagged fence ignored",
			reply: "```\nprint(1)\n```",
			want:  "",
		},
		{
			name:  "first of two blocks wins",
			reply: "```python\nfirst()\n```\nand then\n```python\nsecond()\n```",
			want:  "first()",
		},
		{
			name:  "python block after other-language block",
			reply: "```json\n{\"a\": 1}\n```\n```python\nanalyze()\n```",
			want:  "analyze()",
		},
		{
			name:  "empty reply",
			reply: "",
			want:  "",
		},
		{
			name:  "unclosed fence",
			reply: "```python\nprint(1)",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PythonBlock(tt.reply); got != tt.want {
				t.Errorf("PythonBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}
