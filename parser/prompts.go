package parser

const extractionSystemPrompt = `You are a precise document analyst for RFI/RFP (Request for Information / Request for Proposal) documents. You always respond with a single valid JSON object and nothing else. Do not include explanations or markdown formatting outside the JSON.`

const filledChunkPrompt = `Analyze the following section of a completed RFI/RFP document and extract its content.

Return a JSON object with exactly these keys:
- "qa_pairs": an array of objects, one per question answered in this section, each with:
    - "question": the question text, verbatim
    - "answer": the full answer text given for that question
    - "domain": the business or technical domain the question belongs to (e.g. "Security", "Data Privacy", "Operations")
    - "type": a short label for the question type (e.g. "yes/no", "descriptive", "technical")
- "narrative_content": any prose in this section that is not part of a question or answer (introductions, background, scope statements), as a single string. Use an empty string if there is none.
- "meta_data": an object with "company_name", "date", "category" (either "RFI" or "RFP") and "type" if this section identifies them, otherwise null.

Only extract questions that actually have answers. Preserve the original wording. If the section contains no question/answer pairs, return an empty "qa_pairs" array.

Section:
%s`

const blankChunkPrompt = `Analyze the following section of a blank RFI/RFP questionnaire and extract the questions it asks.

Return a JSON object with exactly these keys:
- "questions": an array of objects, one per question in this section, each with:
    - "question": the question text, verbatim
    - "domain": the business or technical domain the question belongs to (e.g. "Security", "Data Privacy", "Operations")
    - "type": a short label for the question type (e.g. "yes/no", "descriptive", "technical")
- "narrative_content": any prose in this section that is not a question (instructions, background, scope statements), as a single string. Use an empty string if there is none.
- "meta_data": an object with "company_name", "date", "category" (either "RFI" or "RFP") and "type" if this section identifies them, otherwise null.

Extract every question even if it has no answer field. Preserve the original wording. If the section contains no questions, return an empty "questions" array.

Section:
%s`

const summaryPrompt = `Summarize the following RFI/RFP document in 2-4 sentences. Focus on who issued it, what it asks for, and any notable scope or constraints. Respond with plain text only.

Document:
%s`

const classifierSystemPrompt = `You are a document classifier for a proposal-response knowledge base. You always respond with a single valid JSON object and nothing else.`

const classifierPrompt = `Classify the following document.

Return a JSON object with exactly these keys:
- "document_type": one of "RFI/RFP", "Security Questionnaire", "Product Documentation", "Policy", "Contract", "Marketing", "Other"
- "document_grade": one of "High", "Medium", "Low" reflecting how useful this document is as source material for answering future RFI/RFP questions

Document (may be truncated):
%s`
