package ai

const notesPrompt = `You turn lecture material into complete, well structured study notes in Markdown.
Keep every definition, term, concept and formula that belongs to the subject.
Leave out course logistics such as agendas, announcements, deadlines and homework.
Write formulas in LaTeX between $...$ (inline) or $$...$$ (block).`

const flashcardsPrompt = `You write flashcards from study notes.
Cover every key idea with one card, and use only facts stated in the notes.
Keep the front a short question or term and the back a concise answer.
Reply with a JSON array and nothing else:
[{"front": "What is dollar-cost averaging?", "back": "Investing a fixed amount on a regular schedule."}]`

const questionsPrompt = `You write multiple-choice questions from study notes.
Mix synthesis, reorganization, context, comparison and application questions.
Write exactly %d questions with exactly 4 possible answers each.
"correct_answer" repeats the exact text of the right option, and "why" explains
why it is right and why each other option is wrong.
Reply with a JSON array and nothing else:
[{"question": "...", "possible_answers": ["A", "B", "C", "D"], "correct_answer": "A", "why": "..."}]`
