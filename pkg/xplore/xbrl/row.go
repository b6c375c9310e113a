package xbrl

// Columns is the fixed header of the relation table.
var Columns = []string{
	"Parent",
	"Child",
	"Parent English Label",
	"Parent Japanese Label",
	"Child English Label",
	"Child Japanese Label",
	"Data Type",
	"Substitution Group",
	"Balance Type",
}

// Row is one enriched parent → child relationship.
//
// DataType, SubstitutionGroup and Balance describe the parent concept,
// never the child.
type Row struct {
	Parent            string `json:"parent"`
	Child             string `json:"child"`
	ParentEnglish     string `json:"parent_english_label"`
	ParentJapanese    string `json:"parent_japanese_label"`
	ChildEnglish      string `json:"child_english_label"`
	ChildJapanese     string `json:"child_japanese_label"`
	DataType          string `json:"data_type"`
	SubstitutionGroup string `json:"substitution_group"`
	Balance           string `json:"balance_type"`
}

// Values returns the row's fields in Columns order.
func (r Row) Values() []string {
	return []string{
		r.Parent,
		r.Child,
		r.ParentEnglish,
		r.ParentJapanese,
		r.ChildEnglish,
		r.ChildJapanese,
		r.DataType,
		r.SubstitutionGroup,
		r.Balance,
	}
}
