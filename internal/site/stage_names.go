package site

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageDiscover StageName = "discover"
	StageParse    StageName = "parse"
	StageIndex    StageName = "index"
	StageRender   StageName = "render"
	StageWrite    StageName = "write"
)

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline returns the stages of a full build.
func Pipeline() []StageDef {
	return []StageDef{
		{Name: StageDiscover, Fn: stageDiscover},
		{Name: StageParse, Fn: stageParse},
		{Name: StageIndex, Fn: stageIndex},
		{Name: StageRender, Fn: stageRender},
		{Name: StageWrite, Fn: stageWrite},
	}
}
