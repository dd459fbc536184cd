package providers

import "encoding/json"

// QuestionSchemaName labels the schema in structured-output requests.
const QuestionSchemaName = "assessment_questions"

// QuestionSchema is the JSON Schema every provider result must satisfy. The
// true/false pattern avoids inline flags so vendors with ECMA regex accept it.
const QuestionSchema = `{
  "type": "object",
  "required": ["multiple_choice", "identification", "true_or_false"],
  "properties": {
    "multiple_choice": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question", "choices", "correct_answer"],
        "properties": {
          "question": {"type": "string"},
          "choices": {"type": "array", "minItems": 2, "items": {"type": "string"}},
          "correct_answer": {"type": "string"}
        }
      }
    },
    "identification": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question", "correct_answer"],
        "properties": {
          "question": {"type": "string"},
          "correct_answer": {"type": "string"}
        }
      }
    },
    "true_or_false": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question", "correct_answer"],
        "properties": {
          "question": {"type": "string"},
          "correct_answer": {"type": "string", "pattern": "^\\s*([Tt][Rr][Uu][Ee]|[Ff][Aa][Ll][Ss][Ee])\\s*$"}
        }
      }
    }
  }
}`

// QuestionSchemaJSON returns the schema as raw JSON for request bodies.
func QuestionSchemaJSON() json.RawMessage {
	return json.RawMessage(QuestionSchema)
}
