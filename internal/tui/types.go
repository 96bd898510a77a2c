package tui

type stage int

const (
	stageInput stage = iota
	stageResult
	stageSynthesizing
	stageArtifact
)

const heroTagline = "Speak a feeling. The archive answers."

const (
	minContentWidth          = 40
	contentHorizontalPadding = 4
	inputCharLimit           = 240
)

const (
	inputPlaceholder = "How are you feeling, truly?"
	curateFailedMsg  = "The archive is silent right now. Take a breath and try again."
	synthFailedMsg   = "The synthesis faltered. The echoes remain with you."
)
