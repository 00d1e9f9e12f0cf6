package quarantine

import (
	"fmt"

	"conversionloader/internal/artifact"
	"conversionloader/internal/header"
	"conversionloader/internal/tags"
)

// Category is the closed failure taxonomy. Every failing file produces
// exactly one category, and each category fixes the ledger phrase, the
// artifact label and the artifact shape.
type Category int

const (
	FileNameValidation Category = iota
	ExpectedFileValidation
	HeaderValidation
	CSVRead
	ScriptNotFound
	ParamCount
	InsertRows
)

// Phrase is the ledger entry appended to the Errors and Warnings tag.
func (c Category) Phrase() string {
	switch c {
	case FileNameValidation:
		return "Valid File Name: Fail"
	case ExpectedFileValidation:
		return "File Expected Validation: Fail"
	case HeaderValidation:
		return "Valid Headers: Fail"
	case CSVRead:
		return "CSV File Read: Fail"
	case ScriptNotFound:
		return "TSQL File Found: Fail"
	case ParamCount:
		return "File Load Param Count: Fail"
	case InsertRows:
		return "Insert Rows: Fail"
	}
	return "Unknown: Fail"
}

// Label is the parenthetical suffix in the artifact file name.
func (c Category) Label() string {
	switch c {
	case FileNameValidation:
		return "File Name Validation"
	case ExpectedFileValidation:
		return "Expected File Validation"
	case HeaderValidation:
		return "Header Validation"
	case CSVRead:
		return "CSV File Read Error"
	case ScriptNotFound:
		return "TSQL Not Found Error"
	case ParamCount:
		return "Load Params Count Error"
	case InsertRows:
		return "Insert Rows Error"
	}
	return "Unknown Error"
}

// TagValue is the File Category tag carried by the artifact itself. The
// historical values are kept verbatim; downstream reporting filters on
// them.
func (c Category) TagValue() string {
	switch c {
	case FileNameValidation:
		return "File Name Validation"
	case ExpectedFileValidation:
		return "Expected File Validation"
	case HeaderValidation:
		return "Header Validation"
	case CSVRead:
		return "CSV Read Error"
	case ScriptNotFound:
		return "TSQL File Found: Fail"
	case ParamCount:
		return "Invalid Number of Params"
	case InsertRows:
		return "Insert Rows Failed"
	}
	return "Unknown"
}

// Ext is the artifact file extension: tabular reports are csv, message
// reports txt.
func (c Category) Ext() string {
	switch c {
	case FileNameValidation, HeaderValidation:
		return "csv"
	default:
		return "txt"
	}
}

// Failure is the typed processing result a component reports when a file
// must leave active processing. It is translated into tags and an artifact
// only at this package's boundary.
type Failure struct {
	Category    Category
	Message     string              // human-readable detail, embedded in message artifacts
	Comparisons []header.Comparison // HeaderValidation only
}

// body renders the artifact content for a failure against the parent
// file's name and tag set.
func (f Failure) body(parentFileName string, set tags.Set) []byte {
	switch f.Category {
	case FileNameValidation:
		msg := fmt.Sprintf("Initial Upload File not expected for file %s based on tag values:", parentFileName)
		return artifact.TagReport(msg, set, artifact.IdentityKeys)
	case ExpectedFileValidation:
		msg := fmt.Sprintf("File %s is not expected to be loaded. This could be because it was already loaded "+
			"and no changes are expected or the file is out of scope.", parentFileName)
		return artifact.Message(msg)
	case HeaderValidation:
		return artifact.HeaderReport(f.Comparisons)
	default:
		return artifact.Message(f.Message)
	}
}
