package bus

// CommandKind — тип команды. Каждая команда потребляется ровно одним обработчиком.
type CommandKind string

const (
	CmdStartDetection CommandKind = "start_detection"
	CmdStopDetection  CommandKind = "stop_detection"
	CmdPlayAudio      CommandKind = "play_audio"
	CmdStopAudio      CommandKind = "stop_audio"
)

// Command — императивный запрос. Source/volume имеют смысл для аудио-команд.
type Command struct {
	Kind CommandKind

	// PlayAudio / StopAudio: имя источника (goal_music, goal_ambiance, ...).
	Source string
	// PlayAudio: громкость 0-100; отрицательное значение — взять из конфига.
	Volume int
}

// Handler исполняет команду. Обработчик может сам публиковать события на шину.
type Handler func(Command) error
