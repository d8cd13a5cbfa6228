package ingest

// SuccessMessage is the message of every successful result.
const SuccessMessage = "Success"

// SaveRequest asks for one file to be saved into the gallery.
type SaveRequest struct {
	SourcePath     string `json:"sourcePath"`
	AlbumName      string `json:"albumName"`
	FileBaseName   string `json:"fileBaseName"`
	CallbackTarget string `json:"callbackTarget"`
	CallbackMethod string `json:"callbackMethod"`
	RequestID      int    `json:"requestId"`
}

// SaveResult is the outcome of one SaveRequest.
type SaveResult struct {
	RequestID  int    `json:"requestId"`
	Success    bool   `json:"success"`
	ResultPath string `json:"resultPath"`
	Message    string `json:"message"`
}

// Succeeded builds the result of a completed save.
func Succeeded(requestID int, resultPath string) SaveResult {
	return SaveResult{
		RequestID:  requestID,
		Success:    true,
		ResultPath: resultPath,
		Message:    SuccessMessage,
	}
}

// Failed builds the result of a failed save.
func Failed(requestID int, err error) SaveResult {
	return SaveResult{
		RequestID: requestID,
		Message:   Message(err),
	}
}
