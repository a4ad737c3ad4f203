package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# todolist configuration file
# Values can be overridden by TODOLIST_* environment variables or CLI flags

# Storage backend: file, sqlite or memory
storage_driver = "file"

# Directory holding the task file, database and logs (supports ~ expansion)
data_dir = "~/.todolist"

# Key of the durable slot the task list is stored under
storage_key = "todos"

# SQLite database path (default: <data_dir>/todolist.db)
# sqlite_path = "~/.todolist/todolist.db"

# Initial view: all, active or completed
default_filter = "all"

# Command run after every change with the saved task list (JSON) on stdin
# hook_command = "/path/to/hook.sh"

# Logging
log_level = "info"
log_format = "text"
log_timestamps = false
log_caller = false

# Log file used while the terminal UI is running (default: <data_dir>/todolist.log)
# log_file = "~/.todolist/todolist.log"
`
}
