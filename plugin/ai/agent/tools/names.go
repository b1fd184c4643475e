package tools

// Tool names as exposed to the model.
const (
	ToolCreateNewTask     = "create_new_task"
	ToolGetTasks          = "get_tasks"
	ToolMarkTaskCompleted = "mark_task_completed"
	ToolParseDate         = "parse_date"
	ToolGetCurrentDate    = "get_current_date"

	ToolRecallMemories = "recall_memories"
	ToolSaveMemory     = "save_memory"

	ToolGetCoordinates  = "get_coordinates"
	ToolCurrentWeather  = "get_current_weather"
	ToolWeatherForecast = "get_weather_forecast"
)

// Identity argument keys injected by the registry.
const (
	argUserID    = "user_id"
	argSessionID = "session_id"
)
