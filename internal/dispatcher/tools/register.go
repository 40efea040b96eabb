package tools

import "github.com/dev-console/debugctl/internal/dispatcher"

// BuildAll wires every tool name to its Controller-bound handler
// and returns them ready for registration with a dispatcher.Dispatcher.
func BuildAll(c *Controller) []dispatcher.Tool {
	return []dispatcher.Tool{
		// Session
		{Name: "debug_launch", Description: "Launch a debuggee and attach to it", Handler: c.debugLaunch},
		{Name: "debug_attach_socket", Description: "Attach to a listening debug port", Handler: c.debugAttachSocket},
		{Name: "debug_attach_pid", Description: "Attach to a running process by pid", Handler: c.debugAttachPid},
		{Name: "debug_disconnect", Description: "Disconnect the current debug session", Handler: c.debugDisconnect},
		{Name: "debug_status", Description: "Report connection state and last stop reason", Handler: c.debugStatus},
		{Name: "vm_info", Description: "Report the attached target's identity", Handler: c.vmInfo},
		{Name: "ping", Description: "Liveness probe for the JSON-RPC channel", Handler: c.ping},

		// Execution
		{Name: "resume", Description: "Resume the whole target", Handler: c.resume},
		{Name: "suspend", Description: "Suspend the whole target", Handler: c.suspend},
		{Name: "step_into", Description: "Single-step into the next call", Handler: c.stepInto},
		{Name: "step_over", Description: "Single-step over the next call", Handler: c.stepOver},
		{Name: "step_out", Description: "Step out of the current method", Handler: c.stepOut},
		{Name: "wait_for_stop", Description: "Block until the next stop or timeout", Handler: c.waitForStop},
		{Name: "run_to_line", Description: "Set, resume to, and clear a line breakpoint", Handler: c.runToLine},
		{Name: "smart_step_into", Description: "Step into a chosen call, or list candidates", Handler: c.smartStepInto},
		{Name: "execution_location", Description: "Report a thread frame's current location", Handler: c.executionLocation},

		// Line breakpoints
		{Name: "breakpoint_set", Description: "Set a line breakpoint", Handler: c.breakpointSet},
		{Name: "breakpoint_remove", Description: "Remove a line breakpoint", Handler: c.breakpointRemove},
		{Name: "breakpoint_list", Description: "List every line breakpoint", Handler: c.breakpointList},
		{Name: "breakpoint_enable", Description: "Enable a line breakpoint", Handler: c.breakpointEnable},
		{Name: "breakpoint_disable", Description: "Disable a line breakpoint", Handler: c.breakpointDisable},

		// Watchpoints
		{Name: "watchpoint_access", Description: "Set a field-access watchpoint", Handler: c.watchpointAccess},
		{Name: "watchpoint_modification", Description: "Set a field-modification watchpoint", Handler: c.watchpointModification},
		{Name: "watchpoint_remove", Description: "Remove a field watchpoint", Handler: c.watchpointRemove},
		{Name: "watchpoint_list", Description: "List every field watchpoint", Handler: c.watchpointList},

		// Method breakpoints
		{Name: "method_entry_break", Description: "Break on entry to any method of a type", Handler: c.methodEntryBreak},
		{Name: "method_exit_break", Description: "Break on exit from any method of a type", Handler: c.methodExitBreak},
		{Name: "method_breakpoint_remove", Description: "Remove a method breakpoint", Handler: c.methodBreakpointRemove},
		{Name: "method_breakpoint_list", Description: "List every method breakpoint", Handler: c.methodBreakpointList},

		// Exception breakpoints
		{Name: "exception_break_on", Description: "Break when an exception type is thrown", Handler: c.exceptionBreakOn},
		{Name: "exception_break_remove", Description: "Remove an exception breakpoint", Handler: c.exceptionBreakRemove},
		{Name: "exception_break_list", Description: "List every exception breakpoint", Handler: c.exceptionBreakList},
		{Name: "exception_info", Description: "Report one exception breakpoint's detail", Handler: c.exceptionInfo},

		// Inspection
		{Name: "threads_list", Description: "List every known thread and its suspend state", Handler: c.threadsList},
		{Name: "thread_suspend", Description: "Suspend a single thread", Handler: c.threadSuspend},
		{Name: "thread_resume", Description: "Resume a single thread", Handler: c.threadResume},
		{Name: "stack_frames", Description: "List a suspended thread's stack frames", Handler: c.stackFrames},
		{Name: "variables_local", Description: "List a frame's visible local variables", Handler: c.variablesLocal},
		{Name: "variables_arguments", Description: "List a frame's method arguments", Handler: c.variablesArguments},
		{Name: "variable_inspect", Description: "Inspect one named local variable", Handler: c.variableInspect},
		{Name: "this_object", Description: "Inspect a frame's receiver object", Handler: c.thisObject},
		{Name: "object_fields", Description: "List every declared field of an object", Handler: c.objectFields},
		{Name: "array_elements", Description: "Slice an array value's elements", Handler: c.arrayElements},
		{Name: "async_stack_trace", Description: "Group suspended threads by async-framework heuristic", Handler: c.asyncStackTrace},

		// Mutation/evaluation
		{Name: "evaluate_expression", Description: "Evaluate an expression against a suspended frame", Handler: c.evaluateExpression},
		{Name: "set_variable", Description: "Assign a frame-local variable", Handler: c.setVariable},
		{Name: "invoke_method", Description: "Invoke an instance method on a live object", Handler: c.invokeMethod},
		{Name: "invoke_static", Description: "Invoke a static method", Handler: c.invokeStatic},

		// Watch expressions
		{Name: "watch_add", Description: "Register a persistent watch expression", Handler: c.watchAdd},
		{Name: "watch_remove", Description: "Remove a watch expression", Handler: c.watchRemove},
		{Name: "watch_list", Description: "List every watch expression", Handler: c.watchList},
		{Name: "watch_evaluate_all", Description: "Re-evaluate every watch expression against a frame", Handler: c.watchEvaluateAll},

		// Event monitoring
		{Name: "class_prepare_watch", Description: "Watch for class-prepare events", Handler: c.classPrepareWatch},
		{Name: "class_unload_watch", Description: "Watch for class-unload events", Handler: c.classUnloadWatch},
		{Name: "thread_start_watch", Description: "Watch for thread-start events", Handler: c.threadStartWatch},
		{Name: "thread_death_watch", Description: "Watch for thread-death events", Handler: c.threadDeathWatch},
		{Name: "monitor_contention_watch", Description: "Watch for monitor-contention events", Handler: c.monitorContentionWatch},
		{Name: "events_pending", Description: "Drain or peek captured monitoring events", Handler: c.eventsPending},
		{Name: "event_watch_remove", Description: "Remove an event-monitor subscription", Handler: c.eventWatchRemove},
	}
}
