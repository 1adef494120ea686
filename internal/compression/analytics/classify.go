package analytics

import "github.com/shandysiswandi/compressdash/internal/compression/entity"

type efficiencyThreshold struct {
	below float64
	class entity.EfficiencyClass
}

// Evaluated top-down, first match wins; anything left over is Poor.
//
//nolint:gochecknoglobals // read-only table
var efficiencyTable = []efficiencyThreshold{
	{below: 0.3, class: entity.EfficiencyExcellent},
	{below: 0.5, class: entity.EfficiencyGood},
	{below: 0.7, class: entity.EfficiencyFair},
}

// Classify maps a compression ratio onto the canonical efficiency table used by
// the dashboard, the history listing and the charts. It is total: negative, >1
// and NaN ratios all classify.
func Classify(ratio float64) entity.EfficiencyClass {
	for _, th := range efficiencyTable {
		if ratio < th.below {
			return th.class
		}
	}
	return entity.EfficiencyPoor
}

type gradeThreshold struct {
	below float64
	grade entity.ResultGrade
}

//nolint:gochecknoglobals // read-only table
var gradeTable = []gradeThreshold{
	{below: 0.5, grade: entity.GradeStrong},
	{below: 0.8, grade: entity.GradeModerate},
	{below: 1.0, grade: entity.GradeMarginal},
}

// Grade is the legacy 0.5/0.8/1.0 table kept for the single-file result view
// only. New views should use Classify.
func Grade(ratio float64) entity.ResultGrade {
	for _, th := range gradeTable {
		if ratio < th.below {
			return th.grade
		}
	}
	return entity.GradeIneffective
}
