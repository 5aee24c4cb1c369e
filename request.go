package stagefs

// StepKind valid kinds are listed below; see [StepRequest]
type StepKind string

const (
	MkdirStep      StepKind = "mkdir"
	DeleteFileStep StepKind = "deleteFile"
	DeleteDirStep  StepKind = "deleteDir"
	CopyDirStep    StepKind = "copyDir"
	MoveDirStep    StepKind = "moveDir"
	WriteFileStep  StepKind = "writeFile"
	MoveFileStep   StepKind = "moveFile"
	SaveStep       StepKind = "save"
)

// StepRequest is one entry of a plan. It should be passed from entrypoints
// (cli, config files) to the workspace which maps it onto the file system.
type StepRequest struct {
	ID   string
	Kind StepKind
	Path string
	Dest string // copyDir, moveDir, moveFile
	Text string // writeFile, moveFile
	// Immediate selects the immediate variant of deleteFile, deleteDir,
	// copyDir and moveDir instead of queueing
	Immediate bool
}
