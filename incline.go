package sidewalks

import (
	"github.com/tidwall/gjson"
)

// DeriveIncline converts the percent "Grade" property to a fractional incline. It returns nil
// if the property is absent or null.
func DeriveIncline(body []byte) *float64 {

	grade_rsp := gjson.GetBytes(body, "properties.Grade")

	if !grade_rsp.Exists() || grade_rsp.Type == gjson.Null {
		return nil
	}

	incline := grade_rsp.Float() / 100.0
	return &incline
}
