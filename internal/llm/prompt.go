package llm

// baseInstruction is appended to every OCR prompt. It pins the output to
// a whitelist of HTML tags so fragments can be appended straight into the
// editor without a wrapper document.
const baseInstruction = `Format the extracted text as clean semantic HTML fragments. ` +
	`Use only these tags: <h1>, <h2>, <h3>, <p>, <ul>, <ol>, <li>, <table>, <thead>, ` +
	`<tbody>, <tr>, <th>, <td>, <strong>, <em>, <blockquote>, <br>. ` +
	`Never output <html>, <head> or <body> tags, markdown syntax, code fences or any ` +
	`commentary about the image. Output the HTML fragments and nothing else.`

var ocrPrompts = map[ContextHint]string{
	ContextGeneral: `Extract all text from this image. Preserve the reading order and ` +
		`reflect the visible structure with headings, paragraphs and lists.`,
	ContextBook: `Extract the text of this book page with full structural fidelity: ` +
		`keep chapter headings, paragraph boundaries, emphasis and footnotes exactly as ` +
		`they appear on the page.`,
	ContextReceipt: `Extract every line item from this receipt, including item names, ` +
		`quantities, unit prices, totals, tax and the merchant details. ` +
		`Structure the output as an HTML table.`,
	ContextHandwriting: `Transcribe this handwritten text exactly as written, ` +
		`preserving the writer's original line breaks. Do not correct spelling or ` +
		`rearrange anything.`,
	ContextWhiteboard: `Transcribe this whiteboard. Keep the spatial layout readable: ` +
		`group related notes together, render lists as lists and keep arrows or ` +
		`connections described inline where they matter.`,
	ContextQuiz: `Extract the quiz questions from this image. Number each question and ` +
		`letter each answer option (A, B, C, ...). Keep questions and their options ` +
		`grouped together.`,
}

// OCRPrompt returns the extraction instruction for a context hint. An
// unknown hint gets the general prompt.
func OCRPrompt(hint ContextHint) string {
	p, ok := ocrPrompts[hint]
	if !ok {
		p = ocrPrompts[ContextGeneral]
	}
	return p + "\n\n" + baseInstruction
}

// TaskPrompt returns the full prompt for a text task, document included.
// An unknown task falls back to summarize.
func TaskPrompt(task Task, text string) string {
	switch task {
	case TaskTitle:
		return `Suggest a concise title of five words or fewer for the following ` +
			`document. Respond with the title only, without quotation marks.` +
			"\n\n" + text
	default:
		return `Summarize the following document in one to two paragraphs. Respond ` +
			`with the summary only.` + "\n\n" + text
	}
}
