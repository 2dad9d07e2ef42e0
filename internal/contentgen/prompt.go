package contentgen

import (
	"fmt"
	"strings"
)

const graphSystemPrompt = `You are a curriculum designer breaking a topic into a learning knowledge graph.

Rules:
- Produce between 4 and 8 subtopics that together cover the topic for a motivated beginner.
- Each subtopic name must be short, concrete, and unique within the topic.
- Prerequisites must form a sensible learning order with no cycles. Only name subtopics from your own list.
- "related" links connect subtopics that illuminate each other without one depending on the other.
- Do not invent subtopics outside the given topic's scope.`

const questionSystemPrompt = `You are a tutor writing open-ended quiz questions.

Rules:
- Every question must be answerable in a few sentences of free text. No multiple choice.
- Assign each question to one of the provided subtopics, spreading questions across them.
- Mix difficulties: some easy recall questions, some medium, some hard questions that require connecting ideas.
- The correct_answer is a concise model answer a grader can compare against, not an essay.
- Do not repeat any question from the "already asked" list.`

const gradeSystemPrompt = `You are an educational quiz grader.

Rules:
- Judge the learner's answer against the reference answer for conceptual correctness, not wording.
- A partially right answer that shows the core idea counts as correct; score it 3 rather than 5.
- An answer that is wrong, empty, or off-topic is incorrect with a score of 1 or 2.
- Feedback addresses the learner directly, names what was right, and corrects what was wrong.`

func buildGraphMessage(topic string) string {
	return fmt.Sprintf("Topic: %s\n\nBreak this topic into subtopics with prerequisite and related links.", topic)
}

func buildQuestionMessage(topic string, subtopics []string, count int, existing []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	fmt.Fprintf(&b, "Subtopics: %s\n", strings.Join(subtopics, ", "))
	fmt.Fprintf(&b, "Number of questions: %d\n", count)

	b.WriteString("\nAlready asked:\n")
	if len(existing) == 0 {
		b.WriteString("None")
	} else {
		for i, q := range existing {
			fmt.Fprintf(&b, "%d. %s\n", i+1, q)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildGradeMessage(questionText, referenceAnswer, userAnswer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", questionText)
	fmt.Fprintf(&b, "Reference answer: %s\n", referenceAnswer)
	fmt.Fprintf(&b, "Learner's answer: %s", userAnswer)
	return b.String()
}
