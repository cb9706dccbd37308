package services

// ChunkText splits text into contiguous, non-overlapping slices of at most
// size characters (runes). The final chunk may be shorter. Splitting is purely
// offset based so the same text and size always produce the same sequence,
// and the concatenation of all chunks equals the input exactly.
func ChunkText(text string, size int) []string {
	if text == "" || size <= 0 {
		return nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
