package engine

import "fmt"

// systemPrompt instructs the model to answer with Python code that reads
// the CSV from exactly the staged path. The path string here must be the
// same value StageDataset returned, or the generated code fails to open
// the file.
func systemPrompt(datasetPath string) string {
	return fmt.Sprintf(`You're a Python data scientist and data visualization expert.
You are given a dataset at path '%s' and also the user's query.
You need to analyze the dataset and answer the user's query with a response and you run Python code to solve them.
IMPORTANT: Always use the dataset path '%s' in your code when reading the CSV file.`, datasetPath, datasetPath)
}
