package renderer

import "testing"

func BenchmarkRender(b *testing.B) {
	a := defaultArtifact(b)
	for _, name := range Formats() {
		r, err := New(name, DefaultOptions())
		if err != nil {
			b.Fatal(err)
		}
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := r.Render(a); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
