package extraction

// SampleSources is the built-in demo input: a clinic note and an exported
// patient list, each carrying the defects the extractors are built for.
var SampleSources = Sources{
	Narrative: "Today we saw 3 patients[[new-line]]The first was Name:Michael Michaelson NHS Number:333444[[New-Line]]" +
		"the second was Name:Jane Bridge NHS NUmber:55666 with her son Name:David Bridge NHS Number:a44t55[[new-line]]" +
		"We then saw[[new-line]]NHS Number:999 James McDonald[[new-line]][[new-line]]NHS Number:444",
	Records: `{[{"Name":"James Jamerson","NHSNumber":12345},{"Name":"Bob Sinclair","NHSNumber":5555},` +
		`{"Name":"Sally Jamerson","NHSNumber":66554},{"Name":"Michael Myers","NHSNumber":6666},` +
		`{"Name":"James Jamerson","NHSNumber":12345}]}`,
}
