package download

// ArgsBuilder assembles the format and output arguments of a download.
// Strategy and prefix arguments are added by the runner.
type ArgsBuilder struct {
	args []string
}

func NewArgsBuilder() *ArgsBuilder { return &ArgsBuilder{} }

func (b *ArgsBuilder) Format(selector string) *ArgsBuilder {
	b.args = append(b.args, "-f", selector)
	return b
}

func (b *ArgsBuilder) ExtractAudio(codec string) *ArgsBuilder {
	b.args = append(b.args, "-x", "--audio-format", codec)
	return b
}

func (b *ArgsBuilder) MergeInto(container string) *ArgsBuilder {
	b.args = append(b.args, "--merge-output-format", container)
	return b
}

func (b *ArgsBuilder) NoPlaylist() *ArgsBuilder {
	b.args = append(b.args, "--no-playlist")
	return b
}

func (b *ArgsBuilder) Output(template string) *ArgsBuilder {
	b.args = append(b.args, "-o", template)
	return b
}

func (b *ArgsBuilder) Build() []string {
	out := make([]string, len(b.args))
	copy(out, b.args)
	return out
}
