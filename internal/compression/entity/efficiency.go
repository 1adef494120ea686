package entity

// EfficiencyClass buckets a compression ratio for the dashboard, history and charts.
type EfficiencyClass string

const (
	EfficiencyExcellent EfficiencyClass = "Excellent"
	EfficiencyGood      EfficiencyClass = "Good"
	EfficiencyFair      EfficiencyClass = "Fair"
	EfficiencyPoor      EfficiencyClass = "Poor"
)

// EfficiencyClasses lists every class from best to worst.
var EfficiencyClasses = []EfficiencyClass{
	EfficiencyExcellent,
	EfficiencyGood,
	EfficiencyFair,
	EfficiencyPoor,
}

// ResultGrade is the coarser grading shown on the single-file result view.
// It has its own thresholds and must not be mixed with EfficiencyClass.
type ResultGrade string

const (
	GradeStrong      ResultGrade = "Strong"
	GradeModerate    ResultGrade = "Moderate"
	GradeMarginal    ResultGrade = "Marginal"
	GradeIneffective ResultGrade = "Ineffective"
)
