package prompt

import "corpus-expand/internal/corpus"

var languageNames = map[corpus.Language]string{
	corpus.Chinese: "Chinese (Simplified)",
	corpus.English: "English",
}

var systemPrompts = map[corpus.Language]string{
	corpus.Chinese: "你是一个数据整理助手。请根据要求返回 JSON。\n" +
		"要求：\n" +
		"- 严格输出 JSON 对象，键名固定：easy, medium, hard，每个键的值都是字符串数组。\n" +
		"- 不要输出任何解释或额外文本。\n" +
		"- 语言：中文（简体）。\n" +
		"- easy: 日常词语（单词或极短词组），不含标点。\n" +
		"- medium: 简单日常句子，口语自然，使用中文标点（句末'。'），每句 8-18 字为宜。\n" +
		"- hard: 优美华丽的句子，意象自然流畅，句末'。'，避免生僻夸张。每句 15-30 字为宜。\n",
	corpus.English: "You are a data curation assistant. Return JSON only.\n" +
		"Requirements:\n" +
		"- Strict JSON object with keys: easy, medium, hard; each value is an array of strings.\n" +
		"- No explanations or extra text.\n" +
		"- easy: daily words/short phrases (no punctuation), 1-3 words.\n" +
		"- medium: simple daily sentences (end with '.'), 5-12 words.\n" +
		"- hard: elegant, lyrical but grammatical sentences (end with '.'), 10-22 words.\n",
}

var styleGuidance = map[corpus.Language]map[corpus.Tier]string{
	corpus.Chinese: {
		corpus.Easy:   "日常词语；主题不限但需生活常见；不要包含标点；避免专有名词。",
		corpus.Medium: "简单日常句子；情境真实；使用中文标点；句末用“。”；不要成段文字。",
		corpus.Hard:   "优美华丽的句子；自然意象；避免堆砌辞藻与生僻；句末用“。”。",
	},
	corpus.English: {
		corpus.Easy:   "Daily words/short phrases; no punctuation; avoid proper nouns.",
		corpus.Medium: "Simple daily sentences; natural tone; end with a period.",
		corpus.Hard:   "Elegant/lyrical sentences; natural imagery; not purple prose; end with a period.",
	},
}
