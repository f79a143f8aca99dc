package llm

const fixSystemPrompt = "You are a helpful C programming assistant."

const fixPromptFormat = `You are a helpful AI that fixes security flaws in embedded C code.

We found the following vulnerability: %s

Here is a snippet of the code around the vulnerable line:
------------------------------------------------------
%s
------------------------------------------------------

The line triggering this vulnerability or error was:
%q

Please suggest a revised snippet or patch to fix or mitigate this issue,
while preserving the original logic as much as possible.
Return the revised snippet in a fenced code block and explain your changes
briefly at the end.
`

const fileContextFormat = `
For reference, here is the full content of the file:
------------------------------------------------------
%s
------------------------------------------------------
`

const taskSystemPrompt = "You are an expert in embedded C programming and FreeRTOS."

// taskThreatModel is the minimal threat-model preamble guiding generated
// firmware tasks.
const taskThreatModel = `We have identified the following threats:
1) Buffer Overflows
2) Race Conditions
3) Denial of Service
4) Unauthorized Access
We want a FreeRTOS-based network parsing task that mitigates buffer overflow
via boundary checks, logs suspicious inputs, and uses minimal blocking calls
to avoid DoS. The code should be in C.
`

const taskPrompt = taskThreatModel + `
Your task: Generate a C function named 'vSecureNetworkTask' for FreeRTOS on
a Cortex-M environment that receives data from a simulated network driver,
ensures boundary checks, and demonstrates basic concurrency protection
if needed. Show all relevant #includes. The function should be compilable
as part of a standard FreeRTOS project.
`
