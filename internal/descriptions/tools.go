package descriptions

// Tool descriptions with practical examples and use cases

const (
	// Extraction Tools
	PDFExtractFieldsDescription = `Extract structured fields (name, date of birth, insurance information and any custom fields) from a PDF document.

**When to use:** Need specific values out of a form-like PDF such as an intake form, a claim or an insurance card.

**Why it's useful:** Each field is tried against an ordered chain of patterns; the most specific label wins, and values are validated (real names, plausible dates, identifiers) before they are returned.

**Examples:**
• Intake forms: "Get the patient name and date of birth from intake-0042.pdf"
• Encrypted statements: "Extract insurance information from statement.pdf with password 'secret'"
• Subset of fields: "Only extract date_of_birth from referral.pdf"

**Common workflows:**
1. Single document: pdf_extract_fields → check missing fields → pdf_add_pattern → retry
2. Pattern tuning: pdf_list_patterns → pdf_extract_fields → pdf_add_pattern

**Best practices:** Missing fields are reported as absent, never guessed. Pass 'fields' as a comma separated list to limit the work.`

	PDFExtractTextDescription = `Extract structured fields from plain text instead of a PDF file.

**When to use:** The text is already available (pasted content, OCR output, an email body) and only the field values are needed.

**Why it's useful:** Uses exactly the same pattern chains and validators as pdf_extract_fields, so results are comparable.

**Examples:**
• "Extract fields from this text: Name: Jane Smith / DOB: 03/15/1985"
• "Check whether my new pattern matches this sample before processing the folder"

**Best practices:** Use to test custom patterns quickly, then run pdf_extract_directory on real documents.`

	PDFExtractDirectoryDescription = `Extract fields from every PDF in a directory, optionally filtered by a fuzzy file name query.

**When to use:** Batch processing of many similar documents.

**Why it's useful:** Documents are processed in parallel. A document that cannot be read (encrypted, corrupt or scanned without text) becomes an error record; the rest of the batch still completes.

**Examples:**
• "Extract fields from all PDFs in /intake/2024"
• "Process only files matching 'claim' in the default directory"

**Common workflows:**
1. Batch review: pdf_search_directory → pdf_extract_directory → inspect error records
2. Reporting: pdf_extract_directory → pdf_export

**Best practices:** Run pdf_search_directory first to check which files will be processed.`

	// Search and Discovery Tools
	PDFSearchDirectoryDescription = `Discover and filter PDF files across directories with fuzzy name search.

**When to use:** Need to find the documents to process, or check what a batch will include.

**Why it's useful:** Matches partial words in any order, skips hidden directories and files above the size limit.

**Examples:**
• "Find all PDFs containing 'intake' in the name"
• "List every PDF in the default directory"

**Best practices:** Leave the directory empty to search the configured default directory.`

	// Pattern Tools
	PDFListPatternsDescription = `List the registered fields and their ordered pattern chains.

**When to use:** Need to know which fields are extracted and in which order patterns are tried.

**Why it's useful:** Shows the label, validator kind and match policy of every field together with the exact regular expressions.

**Examples:**
• "Which patterns are used for date_of_birth?"
• "List every extractable field"`

	PDFAddPatternDescription = `Register an additional pattern for a field. The pattern is tried after the existing ones.

**When to use:** A document family labels a field differently ("Insured:", "Member Name:") and the value is reported as missing.

**Why it's useful:** New patterns take effect immediately for every later extraction. A new field identifier creates a new text field.

**Examples:**
• Field name, pattern 'Insured:\s*([A-Za-z\s]+?)$'
• Field member_id, pattern 'Member ID:\s*(\w+)'

**Best practices:** Patterns are case-insensitive and multi-line, and must contain exactly one capturing group holding the value.`

	// Export Tools
	PDFExportDescription = `Extract fields from the PDFs of a directory and write them to a file.

**When to use:** Need the extracted data in a spreadsheet, a database or another system.

**Why it's useful:** One row per document with a column per field, plus source file, extraction date and error columns.

**Supported formats:** csv, xlsx, json, yaml, sqlite

**Examples:**
• "Export all intake forms to intake.xlsx"
• "Write the claims folder to claims.db as sqlite"

**Best practices:** The output path is resolved inside the configured directory; the extension is added when missing.`
)
