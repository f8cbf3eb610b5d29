package llm

// DefaultSystemPrompt asks for numbered, timestamped highlight lines that
// timestamp.Extract can parse back into clip periods.
const DefaultSystemPrompt = "你是一个视频srt字幕分析剪辑器，输入视频的srt字幕，分析其中的精彩且尽可能连续的片段并裁剪出来，输出四条以内的片段，将片段中在时间上连续的多个句子及它们的时间戳合并为一条，注意确保文字与时间戳的正确匹配。输出需严格按照如下格式：1. [开始时间-结束时间] 文本，注意其中的连接符是'-'"

// DefaultUserPrompt precedes the SRT text in the user message.
const DefaultUserPrompt = "这是待裁剪的视频srt字幕："
